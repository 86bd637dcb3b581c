package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/cstockton/go-conv"
	"github.com/labstack/echo/v4"
)

// BindAndValidate binds body, path params and query, then fields tagged
// `list:"name"` from comma separated query values, then validates.
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}

	if err := bindList(c, req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}

// bindList fills slice fields from `?name=1,2,3` style query values.
func bindList(c echo.Context, dst interface{}) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Ptr {
		return fmt.Errorf("non-pointer passed to bindList")
	}
	indirect := reflect.Indirect(ptr)
	if indirect.Kind() != reflect.Struct {
		return nil
	}
	structType := indirect.Type()

	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		name := structField.Tag.Get("list")
		if name == "" || name == "-" {
			continue
		}
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		field := indirect.Field(i)
		if field.Kind() != reflect.Slice {
			return fmt.Errorf("%s.%s: list tag on non-slice", structType.Name(), structField.Name)
		}

		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			elem := reflect.New(field.Type().Elem()).Elem()
			if err := conv.Infer(elem.Addr().Interface(), p); err != nil {
				return fmt.Errorf("cannot parse %s value %q as %s: %v", name, p, elem.Type(), err)
			}
			out = reflect.Append(out, elem)
		}
		field.Set(out)
	}
	return nil
}
