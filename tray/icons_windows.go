package tray

// The Windows tray loads icons from .ico content only.
func platformIcon(pngData []byte) []byte { return wrapICO(pngData, iconSize) }
