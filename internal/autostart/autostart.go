// Package autostart registers sticky to start at login through an XDG
// autostart desktop entry.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/logging"
)

// Ensure Entry implements host.LoginItems at compile time.
var _ host.LoginItems = (*Entry)(nil)

const fileName = "sticky.desktop"

// Entry is one autostart desktop file.
type Entry struct {
	// Dir holds autostart entries, usually ~/.config/autostart.
	Dir string
	// Exec is the command line the session manager runs.
	Exec   string
	logger *logrus.Entry
}

// New returns the entry under the user's autostart directory. exec is the
// command line to launch; an empty exec uses the running binary.
func New(exec string) (*Entry, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(exec) == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		exec = quote(self)
	}
	return NewIn(dir, exec), nil
}

// NewIn returns an entry in dir.
func NewIn(dir, exec string) *Entry {
	return &Entry{Dir: dir, Exec: exec, logger: logging.NewLogger("autostart")}
}

// Dir returns $XDG_CONFIG_HOME/autostart, or ~/.config/autostart.
func Dir() (string, error) {
	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" && filepath.IsAbs(base) {
		return filepath.Join(base, "autostart"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "autostart"), nil
}

// Path is the desktop file location.
func (e *Entry) Path() string {
	return filepath.Join(e.Dir, fileName)
}

// SetOpenAtLogin writes the desktop file when enabled and removes it
// otherwise. Removing a missing file is not an error.
func (e *Entry) SetOpenAtLogin(enabled bool) error {
	if !enabled {
		err := os.Remove(e.Path())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove autostart entry: %w", err)
		}
		e.logger.WithField("path", e.Path()).Info("autostart disabled")
		return nil
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	tmp, err := os.CreateTemp(e.Dir, ".sticky-*.desktop")
	if err != nil {
		return fmt.Errorf("create autostart entry: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(e.desktopFile()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write autostart entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write autostart entry: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write autostart entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.Path()); err != nil {
		return fmt.Errorf("install autostart entry: %w", err)
	}
	e.logger.WithField("path", e.Path()).Info("autostart enabled")
	return nil
}

// Enabled reports whether the desktop file exists.
func (e *Entry) Enabled() bool {
	_, err := os.Stat(e.Path())
	return err == nil
}

func (e *Entry) desktopFile() string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=Sticky\n")
	b.WriteString("Comment=Sticky notes\n")
	fmt.Fprintf(&b, "Exec=%s\n", e.Exec)
	b.WriteString("Terminal=true\n")
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return b.String()
}

// quote escapes an Exec argument per the desktop entry spec when it contains
// reserved characters.
func quote(arg string) string {
	if !strings.ContainsAny(arg, " \t\"'\\$`") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", "$", `\$`)
	return `"` + r.Replace(arg) + `"`
}
