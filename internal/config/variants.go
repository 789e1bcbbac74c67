package config

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a variant id does not exist.
var ErrUnknownVariant = errors.New("unknown variant")

// AddMainVariant appends a main variant with default presets and returns its id.
func (m *Manager) AddMainVariant(title string) int {
	var id int
	m.Update(func(c *Config) {
		id = len(c.Macros.MainVariants)
		c.Macros.MainVariants = append(c.Macros.MainVariants, DefaultMainVariant(id, title))
	})
	return id
}

// SelectMainVariant makes id the active main variant.
func (m *Manager) SelectMainVariant(id int) error {
	return m.updateVariant(id, func(c *Config, v *MainVariant) error {
		c.Macros.ActiveMainVariant = v.ID
		return nil
	})
}

// SelectSubVariant loads slot sub of the active main variant into its main preset.
func (m *Manager) SelectSubVariant(sub int) error {
	return m.updateActive(func(v *MainVariant) error {
		for _, s := range v.SubVariants {
			if s.ID == sub {
				v.ActiveSubVariant = s.ID
				v.Main = s
				return nil
			}
		}
		return fmt.Errorf("%w: sub variant %d", ErrUnknownVariant, sub)
	})
}

// StoreSubVariant copies the motion values of the active main preset into slot sub.
func (m *Manager) StoreSubVariant(sub int) error {
	return m.updateActive(func(v *MainVariant) error {
		for i := range v.SubVariants {
			s := &v.SubVariants[i]
			if s.ID == sub {
				s.Sensitivity = v.Main.Sensitivity
				s.Times = v.Main.Times
				s.Rate = v.Main.Rate
				return nil
			}
		}
		return fmt.Errorf("%w: sub variant %d", ErrUnknownVariant, sub)
	})
}

// SetMain replaces the motion values of the active main preset.
func (m *Manager) SetMain(sensitivity int, times, rate uint) error {
	return m.updateActive(func(v *MainVariant) error {
		v.Main.Sensitivity = sensitivity
		v.Main.Times = times
		v.Main.Rate = rate
		return nil
	})
}

// SetClick replaces the click preset of the active main variant.
func (m *Manager) SetClick(times, rate uint) error {
	return m.updateActive(func(v *MainVariant) error {
		v.Click = Click{Times: times, Rate: rate}
		return nil
	})
}

func (m *Manager) updateActive(fn func(v *MainVariant) error) error {
	id := m.Get().Macros.ActiveMainVariant
	return m.updateVariant(id, func(_ *Config, v *MainVariant) error {
		return fn(v)
	})
}

func (m *Manager) updateVariant(id int, fn func(c *Config, v *MainVariant) error) error {
	cfg := m.Get()
	for i := range cfg.Macros.MainVariants {
		if cfg.Macros.MainVariants[i].ID == id {
			if err := fn(cfg, &cfg.Macros.MainVariants[i]); err != nil {
				return err
			}
			m.Set(cfg)
			return nil
		}
	}
	return fmt.Errorf("%w: main variant %d", ErrUnknownVariant, id)
}
