//go:build !voiddebug

package game

const debugInvariants = false
