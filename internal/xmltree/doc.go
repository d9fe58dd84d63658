// Package xmltree parses XML documents into a small navigable element tree.
//
// The tree supports the subset of path lookups API payloads need: relative
// child paths such as "./Status" or "ValidationErrors/ValidationErrorDto",
// and text extraction from the matched element.
//
// Users of the apiwrapper library reach this package through the payload of
// an XML [apiwrapper.Result]; they do not need to parse documents themselves.
package xmltree
