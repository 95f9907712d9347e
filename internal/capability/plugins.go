package capability

// Plugin keys known to the platform.
const (
	Menu         = "menu"
	Order        = "order"
	Analytics    = "analytics"
	ShoppingCart = "shopping_cart"
	Ecommerce    = "ecommerce"
	Payment      = "payment"
	Blog         = "blog"
)

// Plugin describes a toggleable capability.
type Plugin struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	// Core plugins can never be disabled.
	Core bool `json:"is_core"`
}

var plugins = []Plugin{
	{Key: Menu, Label: "Digital menu", Description: "Public menu with categories and products", Core: true},
	{Key: Order, Label: "Orders", Description: "Accept and manage customer orders"},
	{Key: Analytics, Label: "Analytics", Description: "Visitor and sales reports"},
	{Key: ShoppingCart, Label: "Shopping cart", Description: "Let customers collect items before ordering"},
	{Key: Ecommerce, Label: "E-commerce", Description: "Online store with cart and checkout"},
	{Key: Payment, Label: "Online payment", Description: "Payment gateway integration"},
	{Key: Blog, Label: "Blog", Description: "News and articles"},
}

// Plugins returns every known plugin in display order.
func Plugins() []Plugin {
	out := make([]Plugin, len(plugins))
	copy(out, plugins)
	return out
}

// Lookup finds the plugin descriptor for key.
func Lookup(key string) (Plugin, bool) {
	for _, p := range plugins {
		if p.Key == key {
			return p, true
		}
	}
	return Plugin{}, false
}

// CartKeys are the capabilities that grant the shopping cart.
var CartKeys = []string{ShoppingCart, Ecommerce}
