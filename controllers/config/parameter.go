package config

import (
	"fmt"
	"github.com/go-errors/errors"
	logger "github.com/redhatinsights/es-index-lifecycle/controllers/log"
	"reflect"
	"time"
)

var log = logger.NewLogger("parameter")

type Parameter struct {
	//Key is the viper key, also used for the config file entry and, upper cased, the env variable
	Key          string
	Flag         string
	Usage        string
	DefaultValue interface{}
	value        interface{}
	Type         reflect.Kind
}

func (p *Parameter) String() string {
	if p.value == nil {
		return p.DefaultValue.(string)
	} else {
		return p.value.(string)
	}
}

func (p *Parameter) Int() int {
	if p.value == nil {
		return p.DefaultValue.(int)
	} else {
		return p.value.(int)
	}
}

func (p *Parameter) Bool() bool {
	if p.value == nil {
		return p.DefaultValue.(bool)
	} else {
		return p.value.(bool)
	}
}

func (p *Parameter) Float() float64 {
	if p.value == nil {
		return p.DefaultValue.(float64)
	} else {
		return p.value.(float64)
	}
}

//Seconds reads an int parameter as a number of seconds
func (p *Parameter) Seconds() time.Duration {
	return time.Duration(p.Int()) * time.Second
}

func (p *Parameter) Value() interface{} {
	if p.value == nil {
		return p.DefaultValue
	} else {
		return p.value
	}
}

func (p *Parameter) SetValue(value interface{}) error {
	log.Trace(fmt.Sprintf("Setting value for parameter %s", p.Key))

	if value == nil {
		return nil
	}

	t := reflect.TypeOf(value).Kind()
	if t == reflect.Ptr {
		if reflect.ValueOf(value).IsNil() {
			return nil
		}
		t = reflect.ValueOf(value).Elem().Type().Kind()
		value = reflect.ValueOf(value).Elem().Interface()
	}

	if t != p.Type {
		return errors.Wrap(errors.Errorf(
			"value of %s must be of type %s, got %s", p.Key, p.Type.String(), t.String()), 0)
	}

	p.value = value
	return nil
}
