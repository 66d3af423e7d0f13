// Package jvm specifies the narrow interface a hosted JVM (C7) consumes
// from a class-library bridge (spec §4.7). The JVM's class loading,
// bytecode interpretation, method lookup and exception model are an
// external collaborator; this package names only the shape the bridge
// must implement so that real JVM bytecode can invoke vendor classes
// stored in emulated memory.
package jvm

import "context"

// Value is a JVM-level value as seen crossing the bridge boundary: a
// 32-bit word for primitives and object references, matching the raw
// calling-convention word in emulated memory.
type Value uint32

// ClassDefinition exposes a resolved class: its name, ancestry, member
// tables, and instance layout (spec §3.5 descriptor fields).
type ClassDefinition interface {
	Name() string
	ParentName() (string, bool)
	Methods() ([]Method, error)
	Fields() ([]Field, error)
	InstanceFieldSize() (uint32, error)
	AccessFlags() uint32
}

// ArrayClassDefinition is a ClassDefinition whose instances are arrays;
// ElementIsPrimitive distinguishes a primitive element tag from a
// reference element class (spec §3.5 "Array classes").
type ArrayClassDefinition interface {
	ClassDefinition
	ElementIsPrimitive() bool
	ElementSize() uint32
	ElementClassName() (string, bool)
}

// ClassInstance is a live object: field storage plus the class it was
// instantiated from.
type ClassInstance interface {
	ClassDefinition() ClassDefinition
	GetField(ctx context.Context, f Field) (Value, error)
	PutField(ctx context.Context, f Field, v Value) error
	Equals(other ClassInstance) bool
	HashCode() int32
}

// ArrayClassInstance is a ClassInstance backed by array storage.
type ArrayClassInstance interface {
	ClassInstance
	Length() (int, error)
	GetElement(ctx context.Context, index int) (Value, error)
	SetElement(ctx context.Context, index int, v Value) error
}

// Field is a declared field of a class (instance or static).
type Field interface {
	Name() string
	Descriptor() string
	AccessFlags() uint32
	IsStatic() bool
}

// Method is a declared, invocable method of a class.
type Method interface {
	Name() string
	Descriptor() string
	AccessFlags() uint32
	VtableIndex() (int, bool)
	Invoke(ctx context.Context, receiver ClassInstance, args []Value) (Value, error)
}

// ClassNotFoundError is returned by a resolver when a class name cannot
// be found through the vendor's class-loading path (spec §4.7 "Missing
// classes surface as ClassNotFound exceptions through the JVM").
type ClassNotFoundError struct {
	Name string
}

func (e *ClassNotFoundError) Error() string {
	return "class not found: " + e.Name
}

// Resolver looks up classes by fully-qualified name, used by a
// ClassLoader bridge (spec §4.7 "Class-loader bridge").
type Resolver interface {
	ResolveClass(ctx context.Context, name string) (ClassDefinition, error)
}
