// Package project turns resolved options and a template set into the
// branches the scaffold engine runs.
package project
