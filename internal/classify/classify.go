// Package classify infers a device category from its MAC vendor string and
// open ports.
//
// Rules form an ordered chain and the first match wins. Vendor rules always
// run before port rules because vendor substrings overlap (an "HP" printer
// and an "HP" server share a vendor) and ports only break the tie.
package classify

import (
	"strings"

	"netcore/internal/domain"
)

var (
	webPorts     = []int{80, 443}
	printerPorts = []int{9100, 515, 631}
)

// rule is one link in the classification chain
type rule struct {
	name  string
	match func(vendor string, ports domain.PortSet) (domain.Category, bool)
}

// vendorRule matches when the lower-cased vendor contains any of the needles
func vendorRule(name string, category domain.Category, needles ...string) rule {
	return rule{
		name: name,
		match: func(vendor string, _ domain.PortSet) (domain.Category, bool) {
			if containsAny(vendor, needles...) {
				return category, true
			}
			return "", false
		},
	}
}

// portRule matches when any of the ports is open
func portRule(name string, category domain.Category, ports ...int) rule {
	return rule{
		name: name,
		match: func(_ string, open domain.PortSet) (domain.Category, bool) {
			if open.HasAny(ports...) {
				return category, true
			}
			return "", false
		},
	}
}

// chain is evaluated top to bottom. Order is significant.
var chain = []rule{
	vendorRule("virtualization", domain.CategoryServer,
		"proxmox", "vmware", "qemu", "xensource", "parallels", "pcs systemtechnik"),
	vendorRule("nas-vendor", domain.CategoryNAS,
		"ugreen", "synology", "qnap", "asustor", "terramaster"),
	{
		name: "router-vendor",
		match: func(vendor string, open domain.PortSet) (domain.Category, bool) {
			// TP-Link managed switches expose a web UI; their routers are caught below
			if containsAny(vendor, "tp-link") && open.HasAny(webPorts...) {
				return domain.CategorySwitch, true
			}
			if containsAny(vendor,
				"routerboard", "mikrotik", "ubiquiti", "asus", "tp-link",
				"netgear", "zyxel", "avm gmbh", "cisco") {
				return domain.CategoryRouter, true
			}
			return "", false
		},
	},
	{
		name: "enterprise-printer-vendor",
		match: func(vendor string, open domain.PortSet) (domain.Category, bool) {
			if !containsAny(vendor, "hewlett", "hp") {
				return "", false
			}
			if open.HasAny(printerPorts...) {
				return domain.CategoryPrinter, true
			}
			return domain.CategoryServer, true
		},
	},
	vendorRule("media-vendor", domain.CategoryMedia,
		"roku", "sonos", "chromecast", "amazon technologies", "vizio", "bose"),
	vendorRule("console-vendor", domain.CategoryConsole,
		"nintendo", "sony interactive", "playstation", "xbox", "valve"),
	vendorRule("iot-vendor", domain.CategoryIoT,
		"espressif", "tuya", "broadlink", "allterco", "shelly", "signify", "philips lighting", "itead"),

	portRule("printer-ports", domain.CategoryPrinter, 9100, 631),
	portRule("media-server-ports", domain.CategoryNAS, 32400, 8096, 5000),
	portRule("admin-ports", domain.CategoryServer, 8006, 22),
	portRule("web-ports", domain.CategoryNetwork, 80, 443, 8080, 8443),
}

// Classify maps a vendor string and open-port set to a device category.
// It is total: anything unmatched is CategoryUnknown.
func Classify(vendor string, open domain.PortSet) domain.Category {
	category, _ := Explain(vendor, open)
	return category
}

// Explain is Classify plus the name of the rule that decided, or "" when
// nothing matched
func Explain(vendor string, open domain.PortSet) (domain.Category, string) {
	vendor = strings.ToLower(vendor)
	for _, r := range chain {
		if category, ok := r.match(vendor, open); ok {
			return category, r.name
		}
	}
	return domain.CategoryUnknown, ""
}

// Rules returns the rule names in evaluation order
func Rules() []string {
	names := make([]string, len(chain))
	for i, r := range chain {
		names[i] = r.name
	}
	return names
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
