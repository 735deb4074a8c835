package testutil

import (
	"fmt"
	"os"

	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"
)

// 'actual' is a path; passes if something stattable lives there.
func ShouldBeFile(actual interface{}, expected ...interface{}) string {
	filename, ok := actual.(string)
	if !ok {
		return fmt.Sprintf("This assertion takes a path string; got `%T`", actual)
	}
	if len(expected) != 0 {
		return "This assertion takes no expectation parameters."
	}
	if _, err := os.Stat(filename); err != nil {
		return err.Error()
	}
	return ""
}

/*
	'actual' is an error; 'expected' is an `*errors.ErrorClass`.  Passes when
	the error's class sits anywhere under the expected class in the
	hierarchy, so asserting a parent class accepts all its children.
*/
func ShouldBeErrorClass(actual interface{}, expected ...interface{}) string {
	err, ok := actual.(error)
	if !ok {
		return fmt.Sprintf("This assertion takes an `error`; got `%T`", actual)
	}
	class, msg := expectedErrorClass(expected)
	if msg != "" {
		return msg
	}
	return checkErrorClass(err, class)
}

/*
	'actual' is a `func()`; 'expected' is an `*errors.ErrorClass`.  Runs the
	function and passes when it panics with an error under the expected
	class.  Not panicking at all is a failure.
*/
func ShouldPanicWith(actual interface{}, expected ...interface{}) string {
	fn, ok := actual.(func())
	if !ok {
		return fmt.Sprintf("This assertion takes a `func()`; got `%T`", actual)
	}
	class, msg := expectedErrorClass(expected)
	if msg != "" {
		return msg
	}

	var caught error
	try.Do(fn).CatchAll(func(err error) {
		caught = err
	}).Done()

	if caught == nil {
		return fmt.Sprintf("Expected a panic with class %q but nothing was raised!", class.String())
	}
	return checkErrorClass(caught, class)
}

func expectedErrorClass(expected []interface{}) (*errors.ErrorClass, string) {
	if len(expected) != 1 {
		return nil, "This assertion takes exactly one expectation parameter."
	}
	class, ok := expected[0].(*errors.ErrorClass)
	if !ok {
		return nil, "The expectation parameter must be an `*errors.ErrorClass`."
	}
	return class, ""
}

func checkErrorClass(err error, class *errors.ErrorClass) string {
	actualClass := errors.GetClass(err)
	if actualClass.Is(class) {
		return ""
	}
	return fmt.Sprintf("Expected an error of class %q but got %q!  (Full message: %s)",
		class.String(), actualClass.String(), err.Error())
}
