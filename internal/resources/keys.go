// ABOUTME: Key functions deriving selection keys from resources
// ABOUTME: By Pulp href, by name, or by numeric id

package resources

import "strconv"

// Identified is a resource with a numeric id.
type Identified interface{ ResourceID() int }

// Named is a resource whose name is unique.
type Named interface{ ResourceName() string }

// PulpObject is a Pulp resource addressed by its href.
type PulpObject interface{ ResourceHref() string }

// IDKey keys an item by its numeric id.
func IDKey[T Identified](item T) string {
	return strconv.Itoa(item.ResourceID())
}

// NameKey keys an item by its name.
func NameKey[T Named](item T) string {
	return item.ResourceName()
}

// PulpHrefKey keys an item by its Pulp href.
func PulpHrefKey[T PulpObject](item T) string {
	return item.ResourceHref()
}
