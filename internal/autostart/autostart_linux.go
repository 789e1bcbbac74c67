package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const desktopEntry = `[Desktop Entry]
Type=Application
Name=Mouse Macros
Comment=Global key bindings and mouse macros
Exec={{.Exec}}
Terminal=false
X-GNOME-Autostart-enabled=true
`

func entryPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", AppName+".desktop"), nil
}

func enable(execPath string, args []string) error {
	path, err := entryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpl, err := template.New("desktop").Parse(desktopEntry)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	exec := strings.Join(append([]string{quote(execPath)}, args...), " ")
	return tmpl.Execute(f, struct{ Exec string }{exec})
}

func disable() error {
	path, err := entryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func isEnabled() bool {
	path, err := entryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func quote(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
