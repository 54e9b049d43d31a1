package principal

import "fmt"

// Network selects the address encoding used when rendering principals.
type Network struct {
	Name    string
	Mainnet bool // false renders testnet-style addresses
}

// Predefined networks.
var (
	MainNet = Network{Name: "mainnet", Mainnet: true}
	TestNet = Network{Name: "testnet", Mainnet: false}
	RegTest = Network{Name: "regtest", Mainnet: false}
)

var predefined = map[string]*Network{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// GetNetwork returns a predefined network by name.
func GetNetwork(name string) (*Network, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}
