package catalog

// FootprintControlID is the control whose options carry display dimensions.
const FootprintControlID = "footprint"

// FootprintDims returns the dimensions of the footprint option with the given
// key. A missing footprint control, an unknown key or an option without dims
// yields unknown (nil) dimensions; it is never an error.
func (c *Catalog) FootprintDims(key string) Dims {
	fp, ok := c.Control(FootprintControlID)
	if !ok {
		return Dims{}
	}
	opt, ok := fp.Option(key)
	if !ok {
		return Dims{}
	}
	return opt.Dims
}
