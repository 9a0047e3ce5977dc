package cpu

import (
	"bytes"
)

// Equal reports whether two cpus hold the same architecture, register values and memory image.
func Equal(a, b Cpu) bool {
	if a.Arch() != b.Arch() {
		return false
	}
	for _, r := range a.Arch().Parents() {
		va, erra := a.RegReadBig(r)
		vb, errb := b.RegReadBig(r)
		if erra != nil || errb != nil || va.Cmp(vb) != 0 {
			return false
		}
	}
	ma, mb := a.Mappings(), b.Mappings()
	if len(ma) != len(mb) {
		return false
	}
	for i := range ma {
		pa, pb := ma[i], mb[i]
		if pa.Addr != pb.Addr || pa.Size != pb.Size || pa.Prot != pb.Prot || !bytes.Equal(pa.Data, pb.Data) {
			return false
		}
	}
	return true
}
