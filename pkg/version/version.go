package version

// VERSION is the version of gosg, and of the API it serves.
var VERSION = "0.1.0"
