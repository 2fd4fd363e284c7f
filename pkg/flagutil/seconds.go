package flagutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// SecondsFlag is a positive duration flag that also accepts a bare number
// of seconds: "15", "1.5" and "15s" are all valid.
type SecondsFlag time.Duration

func (f *SecondsFlag) String() string {
	return time.Duration(*f).String()
}

func (f *SecondsFlag) Set(value string) error {
	d, err := ParseSeconds(value)
	if err != nil {
		return err
	}
	*f = SecondsFlag(d)
	return nil
}

func (f *SecondsFlag) Type() string {
	return "duration"
}

// ParseSeconds parses a number of seconds or a Go duration string.
func ParseSeconds(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	var d time.Duration
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(value); err != nil {
		return 0, fmt.Errorf("invalid value: %v", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid value: %v must be positive", value)
	}
	return d, nil
}

// SecondsVarP defines a SecondsFlag stored in p.
func SecondsVarP(fs *pflag.FlagSet, p *time.Duration, name, shorthand string, value time.Duration, usage string) {
	*p = value
	fs.VarP((*SecondsFlag)(p), name, shorthand, usage)
}
