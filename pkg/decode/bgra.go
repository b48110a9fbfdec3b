package decode

// BGRAToRGB converts a packed 32-bit B, G, R, A buffer into packed 24-bit
// R, G, B, dropping the alpha channel. dst must hold width*height*3 bytes.
//
// src may be shorter than width*height*4: any pixel whose blue, green and red
// samples do not all fit in src is skipped and its dst bytes are left as they
// were.
func BGRAToRGB(dst, src []byte, width, height int) {
	n := width * height
	for i := 0; i < n; i++ {
		s := i * 4
		if s+2 >= len(src) {
			// src is packed, so every later pixel is out of range too.
			return
		}
		d := i * 3
		dst[d+0] = src[s+2]
		dst[d+1] = src[s+1]
		dst[d+2] = src[s+0]
	}
}
