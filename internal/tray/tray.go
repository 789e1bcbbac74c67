// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	Checked  bool
	Disabled bool
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	title   string
	tooltip string
	items   []*MenuItem
	quitCh  chan struct{}
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		items:   make([]*MenuItem, 0),
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	})
	return id
}

// AddLabel adds a disabled item used to show state.
func (t *Tray) AddLabel(title string) int {
	id := t.AddMenuItem(title, nil)
	t.mu.Lock()
	t.items[id].Disabled = true
	t.mu.Unlock()
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	t.items = append(t.items, nil) // nil indicates separator
	t.mu.Unlock()
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	mi := t.get(id)
	if mi == nil {
		return
	}
	t.mu.Lock()
	mi.Checked = checked
	item := mi.item
	t.mu.Unlock()

	if item != nil {
		if checked {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetItemTitle changes the text of a menu item
func (t *Tray) SetItemTitle(id int, title string) {
	mi := t.get(id)
	if mi == nil {
		return
	}
	t.mu.Lock()
	mi.Title = title
	item := mi.item
	t.mu.Unlock()

	if item != nil {
		item.SetTitle(title)
	}
}

// Item returns a copy of the menu item with the given id.
func (t *Tray) Item(id int) (MenuItem, bool) {
	mi := t.get(id)
	if mi == nil {
		return MenuItem{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return *mi, true
}

func (t *Tray) get(id int) *MenuItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) {
		return nil
	}
	return t.items[id]
}

// Run starts the tray event loop (blocks until Stop)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() { close(t.quitCh) })
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(getIcon())

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}

		item := systray.AddMenuItem(menuItem.Title, "")
		menuItem.item = item
		if menuItem.Checked {
			item.Check()
		}
		if menuItem.Disabled {
			item.Disable()
		}

		// Handle clicks in goroutine
		if menuItem.Callback != nil {
			go func(clicked <-chan struct{}, callback func()) {
				for {
					select {
					case <-clicked:
						callback()
					case <-t.quitCh:
						return
					}
				}
			}(item.ClickedCh, menuItem.Callback)
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a 16x16 32-bit ICO with a filled disc.
func getIcon() []byte {
	const size = 16
	const pixels = size * size * 4
	const mask = size * 4 // 1bpp AND mask, rows padded to 32 bits
	const dib = 40

	icon := make([]byte, 6+16+dib+pixels+mask)
	// ICONDIR
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// ICONDIRENTRY
	copy(icon[6:14], []byte{size, size, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00})
	binary.LittleEndian.PutUint32(icon[14:18], dib+pixels+mask)
	binary.LittleEndian.PutUint32(icon[18:22], 22)
	// BITMAPINFOHEADER, height doubled for the mask
	copy(icon[22:22+dib], []byte{
		dib, 0x00, 0x00, 0x00,
		size, 0x00, 0x00, 0x00,
		size * 2, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x20, 0x00,
		0x00, 0x00, 0x00, 0x00,
	})
	binary.LittleEndian.PutUint32(icon[22+20:22+24], pixels)

	// BGRA rows, bottom-up
	px := icon[22+dib:]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := 2*x-(size-1), 2*y-(size-1)
			if dx*dx+dy*dy > (size-2)*(size-2) {
				continue
			}
			i := (y*size + x) * 4
			px[i], px[i+1], px[i+2], px[i+3] = 0xE0, 0x90, 0x30, 0xFF
		}
	}
	return icon
}
