// Package vfp interpolates vertical lift performance tables.
package vfp

import "errors"

var (
	ErrTableNotFound = errors.New("vfp: table not found")
	ErrInvalidTable  = errors.New("vfp: invalid table")
	ErrDuplicateID   = errors.New("vfp: duplicate table id")
)
