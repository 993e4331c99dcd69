package config

// ConfigFileName is the class declaration file looked up by the CLI
const ConfigFileName = "duby.yaml"

// Intrinsic operation names
const (
	NilTestName     = "nil?"
	EqualsName      = "=="
	NotEqualsName   = "!="
	IndexName       = "[]"
	IndexAssignName = "[]="
	LengthName      = "length"
	ConcatName      = "+"
)

// Well-known JVM class names
const (
	ObjectClassName = "java.lang.Object"
	StringClassName = "java.lang.String"
)

// Short aliases accepted wherever a type name is parsed
const (
	ObjectAlias = "Object"
	StringAlias = "String"
)

// Ordinary methods the built-in types declare
const (
	ConcatMethodName   = "concat"
	EqualsMethodName   = "equals"
	HashCodeMethodName = "hashCode"
	ToStringMethodName = "toString"
	LengthMethodName   = "length"
	CharAtMethodName   = "charAt"
)

// ArraySuffix marks an array type name, e.g. int[]
const ArraySuffix = "[]"

// SelfName is the local holding the receiver of an instance method
const SelfName = "self"
