package security

// In-memory client registry for the dev token endpoint (replace with
// DB/config later).
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","checkout.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"storefront-web": {ID: "storefront-web", Secret: "storefront-web-secret", Perms: []string{"orders.read", "checkout.write"}, Enabled: true},
	"svc-admin":      {ID: "svc-admin", Secret: "admin-secret", Perms: []string{"orders.read", "checkout.write", "orders.admin"}, Enabled: true},
	"svc-analytics":  {ID: "svc-analytics", Secret: "ana-secret", Perms: []string{"orders.read"}, Enabled: true},
}
