package cmd

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replacer = strings.NewReplacer(".", "_", "-", "_")

type argType interface {
	string | bool | int | int64 | float64 | time.Duration | []string
}

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

func (b boundEnvVar[T]) envName() string {
	if b.Env != nil {
		return *b.Env
	}
	return strings.ToUpper(replacer.Replace(b.Name))
}

// bindEnvMap registers a persistent flag per entry. The environment variable, when set, replaces the
// configured value as the flag default. int entries are counters.
func bindEnvMap[T argType](cmd *cobra.Command, m map[*T]boundEnvVar[T]) {
	for v, cfg := range m {
		env := cfg.envName()
		desc := fmt.Sprintf("[%s] %s", env, cfg.Description)
		_ = viper.BindEnv(cfg.Name, env)
		fromEnv := viper.IsSet(cfg.Name)
		short := ""
		if cfg.Short != nil {
			short = *cfg.Short
		}

		flags := cmd.PersistentFlags()
		switch vt := any(v).(type) {
		case *string:
			def := *vt
			if fromEnv {
				def = viper.GetString(cfg.Name)
			}
			flags.StringVarP(vt, cfg.Name, short, def, desc)
		case *bool:
			def := *vt
			if fromEnv {
				def = viper.GetBool(cfg.Name)
			}
			flags.BoolVarP(vt, cfg.Name, short, def, desc)
		case *int:
			def := *vt
			if fromEnv {
				def = viper.GetInt(cfg.Name)
			}
			flags.CountVarP(vt, cfg.Name, short, desc)
			_ = flags.Lookup(cfg.Name).Value.Set(strconv.Itoa(def))
		case *int64:
			def := *vt
			if fromEnv {
				def = viper.GetInt64(cfg.Name)
			}
			flags.Int64VarP(vt, cfg.Name, short, def, desc)
		case *float64:
			def := *vt
			if fromEnv {
				def = viper.GetFloat64(cfg.Name)
			}
			flags.Float64VarP(vt, cfg.Name, short, def, desc)
		case *time.Duration:
			def := *vt
			if fromEnv {
				def = viper.GetDuration(cfg.Name)
			}
			flags.DurationVarP(vt, cfg.Name, short, def, desc)
		case *[]string:
			def := *vt
			if fromEnv {
				def = viper.GetStringSlice(cfg.Name)
			}
			flags.StringSliceVarP(vt, cfg.Name, short, def, desc)
		default:
			log.Panicf("command-args parsing error: unhandled default case for type %T", vt)
		}

		_ = viper.BindPFlag(cfg.Name, flags.Lookup(cfg.Name))
		if cfg.Hidden {
			_ = flags.MarkHidden(cfg.Name)
		}
	}
}
