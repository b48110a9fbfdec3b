package formats

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Subtype identifies a Media Foundation media type or video subtype.
type Subtype uuid.UUID

var (
	MediaTypeVideo = Subtype(uuid.MustParse("73646976-0000-0010-8000-00AA00389B71"))

	VideoFormatRGB32 = Subtype(uuid.MustParse("00000016-0000-0010-8000-00AA00389B71"))
	VideoFormatRGB24 = Subtype(uuid.MustParse("00000014-0000-0010-8000-00AA00389B71"))
	VideoFormatMJPG  = Subtype(uuid.MustParse("47504A4D-0000-0010-8000-00AA00389B71"))
	VideoFormatYUY2  = Subtype(uuid.MustParse("32595559-0000-0010-8000-00AA00389B71"))
	VideoFormatNV12  = Subtype(uuid.MustParse("3231564E-0000-0010-8000-00AA00389B71"))
)

// Data1 returns the first GUID field, which holds the FourCC or D3DFORMAT
// value for video subtypes.
func (s Subtype) Data1() uint32 {
	return binary.BigEndian.Uint32(s[0:4])
}

// Fields splits the subtype into the Data1..Data4 layout Windows uses.
func (s Subtype) Fields() (uint32, uint16, uint16, [8]byte) {
	var d4 [8]byte
	copy(d4[:], s[8:16])
	return binary.BigEndian.Uint32(s[0:4]), binary.BigEndian.Uint16(s[4:6]), binary.BigEndian.Uint16(s[6:8]), d4
}

// FromFields is the inverse of Fields.
func FromFields(d1 uint32, d2, d3 uint16, d4 [8]byte) Subtype {
	var s Subtype
	binary.BigEndian.PutUint32(s[0:4], d1)
	binary.BigEndian.PutUint16(s[4:6], d2)
	binary.BigEndian.PutUint16(s[6:8], d3)
	copy(s[8:16], d4[:])
	return s
}

func (s Subtype) String() string {
	return uuid.UUID(s).String()
}

// FourCC returns a short printable name for the subtype.
func (s Subtype) FourCC() string {
	switch s {
	case VideoFormatRGB32:
		return "RGB4"
	case VideoFormatRGB24:
		return "RGB3"
	case MediaTypeVideo:
		return "vids"
	}
	d1 := s.Data1()
	b := [4]byte{byte(d1), byte(d1 >> 8), byte(d1 >> 16), byte(d1 >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%08X", d1)
		}
	}
	return string(b[:])
}
