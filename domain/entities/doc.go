// Package entities provides the value types shared by the host bridge:
// sync directions and states, filesystem entries and request contexts.
// They carry no behavior that depends on a runtime or a storage engine.
package entities
