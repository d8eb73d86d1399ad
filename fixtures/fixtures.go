package fixtures

import (
	_ "embed"
)

//go:embed config/config.yaml.template
var ConfigTemplate []byte

//go:embed topology/single.yaml
var SingleTopology []byte

//go:embed topology/dual.yaml
var DualTopology []byte

//go:embed topology/empty.yaml
var EmptyTopology []byte
