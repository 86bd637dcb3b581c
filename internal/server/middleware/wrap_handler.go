package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"github.com/labstack/echo/v4"
)

var (
	echoContextType = reflect.TypeOf((*echo.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// WrapHandler turns func(echo.Context, Req) (Res, error) or
// func(echo.Context, Req) error into an echo handler. Req is bound and
// validated first; Res is written in the Response envelope. A handler that
// already wrote its response is left alone.
func WrapHandler(f interface{}) echo.HandlerFunc {
	handler, err := wrapHandler(f)
	if err != nil {
		panic(err)
	}
	return handler
}

func wrapHandler(f interface{}) (echo.HandlerFunc, error) {
	fTyp := reflect.TypeOf(f)
	fVal := reflect.ValueOf(f)
	if fVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("invalid function passed to wrap handler: %v", fVal)
	}
	fName := runtime.FuncForPC(fVal.Pointer()).Name()

	if n := fTyp.NumIn(); n != 2 {
		return nil, fmt.Errorf("[%s] invalid function arguments length: %d", fName, n)
	}
	if !fTyp.In(0).Implements(echoContextType) {
		return nil, fmt.Errorf("[%s] first argument must has type echo.Context", fName)
	}
	reqType := fTyp.In(1)
	if reqType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("[%s] second argument must has type struct: %v", fName, reqType.Kind())
	}

	numOut := fTyp.NumOut()
	if numOut < 1 || numOut > 2 {
		return nil, fmt.Errorf("[%s] invalid function returns length: %d", fName, numOut)
	}
	errIdx := numOut - 1
	if !fTyp.Out(errIdx).Implements(errorType) {
		return nil, fmt.Errorf("[%s] last return argument must has type error: %v", fName, fTyp.Out(errIdx))
	}

	return func(c echo.Context) error {
		req := reflect.New(reqType)
		if err := BindAndValidate(c, req.Interface()); err != nil {
			return err
		}

		out := fVal.Call([]reflect.Value{reflect.ValueOf(c), req.Elem()})
		if errVal := out[errIdx]; !errVal.IsNil() {
			return errVal.Interface().(error)
		}

		res := c.Response()
		if res.Committed {
			return nil
		}
		if numOut == 1 {
			return c.NoContent(http.StatusNoContent)
		}

		data := out[0].Interface()
		envelope, ok := data.(*Response)
		if !ok {
			envelope = &Response{Status: http.StatusOK, Success: true, Data: data}
		}
		return c.JSON(envelope.Status, envelope)
	}, nil
}
