// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package atrium

// NodeID is the unique identifier of a storage node in the registry.
type NodeID string

// String returns the node id as a plain string.
func (id NodeID) String() string { return string(id) }

// NodeIDList is an ordered list of node ids.
type NodeIDList []NodeID

// Len implements sort.Interface.
func (list NodeIDList) Len() int { return len(list) }

// Swap implements sort.Interface.
func (list NodeIDList) Swap(i, j int) { list[i], list[j] = list[j], list[i] }

// Less implements sort.Interface.
func (list NodeIDList) Less(i, j int) bool { return list[i] < list[j] }

// Contains reports whether id is present in the list.
func (list NodeIDList) Contains(id NodeID) bool {
	for _, other := range list {
		if other == id {
			return true
		}
	}
	return false
}

// Copy returns an independent copy of the list.
func (list NodeIDList) Copy() NodeIDList {
	if list == nil {
		return nil
	}
	copied := make(NodeIDList, len(list))
	copy(copied, list)
	return copied
}

// Strings converts the list into plain strings.
func (list NodeIDList) Strings() []string {
	strs := make([]string, 0, len(list))
	for _, id := range list {
		strs = append(strs, id.String())
	}
	return strs
}
