// Package store implements the register store: a namespace of named
// objects (one per device), each holding named, typed variables
// ("registers"). Every individual read and write of a variable is atomic;
// the store provides no transaction spanning multiple variables.
//
// The model is Namespace > Object > Variable. Devices own their objects
// exclusively and mutate them through SetValueInternal; remote writers go
// through SetValue, which enforces the writable flag declared at setup.
package store
