package common

const (
	Product = `compository`
)

var (
	Version = `v0.3.0`
)
