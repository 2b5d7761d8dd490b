package helpers

import "reflect"

// Callback is a function with no arguments
type Callback func()

// Typeof returns the type of $v as a string
func Typeof(v interface{}) string {
	return reflect.TypeOf(v).String()
}
