// Package env discovers and merges YAML config files.
//
// A config named "luatrace" is read from every config directory, lowest
// priority first, each file overriding the fields it sets:
//
//	l := env.NewLoader[*Cfg]()
//	l.RegisterCallback(env.MustFn(env.FromYAMLConfigs[*Cfg]("luatrace")))
//	if err := l.Load(&cfg); err != nil {
//		return err
//	}
package env
