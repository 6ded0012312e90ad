// Package profile inspects a project tree and reports which languages,
// manifest files, and package managers it appears to use. Detection is
// purely filesystem based; project code is never executed.
package profile
