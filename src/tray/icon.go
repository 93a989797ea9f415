package tray

import "fyne.io/fyne/v2"

// SVGContent is the tray icon: a capture frame with a question mark.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="1.5" y="2.5" width="13" height="10" rx="1" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1"/>
  <path d="M6.2 6.2a1.8 1.8 0 1 1 2.6 1.6c-.5.3-.8.6-.8 1.2" fill="none" stroke="#333333" stroke-width="1.2" stroke-linecap="round"/>
  <circle cx="8" cy="10.6" r="0.7" fill="#333333"/>
</svg>`

var Icon = fyne.NewStaticResource("screen-solver.svg", []byte(SVGContent))
