// Package api names the FSML vocabulary: the elements and attributes a
// file hierarchy is mapped to.
package api

// Elements of an FSML document.
const (
	// ElemRoot wraps the whole document. Its name attribute holds the
	// absolute path of the traversal root.
	ElemRoot = "fsml"
	ElemDir  = "dir"
	ElemFile = "file"
	// ElemLink is always empty. Links are never followed.
	ElemLink = "link"
)

// Attributes carried by FSML elements.
const (
	AttrName   = "name"
	AttrSuffix = "suffix"

	AttrMode  = "st_mode"
	AttrDev   = "st_dev"
	AttrNlink = "st_nlink"
	AttrUID   = "st_uid"
	AttrGID   = "st_gid"
	AttrSize  = "st_size"
	AttrAtime = "st_atime"
	AttrMtime = "st_mtime"
	AttrCtime = "st_ctime"
)

// StatAttrs lists the status attributes in the order they are emitted.
var StatAttrs = []string{
	AttrMode, AttrDev, AttrNlink, AttrUID, AttrGID,
	AttrSize, AttrAtime, AttrMtime, AttrCtime,
}
