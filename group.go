/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Groups of attributes
 */

package ipp

// Group is a delimiter-tagged section of a message, holding an ordered
// sequence of attributes. Ordering within a group matters for
// multi-value association on the wire.
type Group struct {
	Tag   Tag        // Group delimiter tag
	Attrs Attributes // Group attributes
}

// Add appends an attribute to the group.
func (g *Group) Add(attr Attribute) {
	g.Attrs.Add(attr)
}

// Equal reports whether two groups have the same tag and equal
// attributes.
func (g Group) Equal(g2 Group) bool {
	return g.Tag == g2.Tag && g.Attrs.Equal(g2.Attrs)
}

// Groups is an ordered sequence of groups. Group tags may repeat: a
// Get-Jobs response, for example, carries one job-attributes group per
// returned job.
type Groups []Group

// Add appends a group.
func (groups *Groups) Add(g Group) {
	*groups = append(*groups, g)
}

// Get returns the first group with the given tag, or nil.
func (groups Groups) Get(tag Tag) *Group {
	for i := range groups {
		if groups[i].Tag == tag {
			return &groups[i]
		}
	}
	return nil
}

// Equal performs a deep, order-sensitive equality check.
func (groups Groups) Equal(groups2 Groups) bool {
	if len(groups) != len(groups2) {
		return false
	}

	for i, g := range groups {
		if !g.Equal(groups2[i]) {
			return false
		}
	}

	return true
}
