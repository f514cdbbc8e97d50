package diff

// widenings lists the safe one-directional scalar promotions. The table
// is consulted with (old, new) order and is deliberately asymmetric:
// integer -> number is compatible, number -> integer is not. Any scalar
// pair not listed here, and any format change, is breaking.
var widenings = map[[2]string]bool{
	{"integer", "number"}: true,
}

// scalarCompatible reports whether changing a scalar's type from old to
// new keeps existing clients working. Equal types are trivially
// compatible.
func scalarCompatible(oldType, newType string) bool {
	if oldType == newType {
		return true
	}
	return widenings[[2]string{oldType, newType}]
}
