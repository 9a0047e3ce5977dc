package arch

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"io/ioutil"
	"math/big"
	"strings"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

// cpu image format:
//
// file header
// [4]byte("SNAP")
// uint32(image format version)
// [16]byte(architecture name, right-null-padded)
// uint32(crc32 of compressed data)
// uint64(length of compressed data)
// remainder is snappy-compressed
//
// -- uncompressed data start --
// registers
// uint32(number of registers)
// 1..num: uint32(register id), uint32(len), <big-endian value bytes of len>
//
// memory
// uint32(number of mapped sections)
// 1..num: uint64(addr), uint64(len), uint32(prot), uint16(desc len), <desc>, <raw memory bytes of len>

var IMAGE_MAGIC = "SNAP"

const IMAGE_VERSION = 1

type imageHeader struct {
	Magic   string `struc:"[4]byte"`
	Version uint32
	Arch    string `struc:"[16]byte"`
	Crc32   uint32
	Length  uint64
}

type regRecord struct {
	ID    uint32
	Len   uint32 `struc:"sizeof=Value"`
	Value []byte
}

type pageRecord struct {
	Addr    uint64
	Size    uint64 `struc:"sizeof=Data"`
	Prot    uint32
	DescLen uint16 `struc:"sizeof=Desc"`
	Desc    string
	Data    []byte
}

// SaveState writes a compressed image of s to w. The empty state has no image.
func SaveState(w io.Writer, s State) error {
	if s == nil {
		return ErrEmptyState
	}
	c, err := s.Cpu()
	if err != nil {
		return err
	}
	var body bytes.Buffer
	stream := models.StrucStream{Stream: &body, Order: binary.BigEndian}

	var regs []*regRecord
	for _, r := range c.Arch().Parents() {
		if !r.Mutable {
			continue
		}
		val, err := c.RegReadBig(r)
		if err != nil {
			return errors.Wrapf(err, "reading %s", r.Name)
		}
		value := make([]byte, (r.BitSize()+7)/8)
		val.FillBytes(value)
		regs = append(regs, &regRecord{ID: uint32(r.ID), Value: value})
	}
	if err := stream.Pack(uint32(len(regs))); err != nil {
		return err
	}
	for _, rec := range regs {
		if err := stream.Pack(rec); err != nil {
			return errors.Wrap(err, "failed to pack register")
		}
	}

	mappings := c.Mappings()
	if err := stream.Pack(uint32(len(mappings))); err != nil {
		return err
	}
	for _, m := range mappings {
		data, err := c.MemRead(m.Addr, m.Size)
		if err != nil {
			return err
		}
		rec := &pageRecord{Addr: m.Addr, Prot: uint32(m.Prot), Desc: m.Desc, Data: data}
		if err := stream.Pack(rec); err != nil {
			return errors.Wrap(err, "failed to pack mapping")
		}
	}

	data := snappy.Encode(nil, body.Bytes())
	header := &imageHeader{
		Magic:   IMAGE_MAGIC,
		Version: IMAGE_VERSION,
		Arch:    s.Arch().String(),
		Crc32:   crc32.ChecksumIEEE(data),
		Length:  uint64(len(data)),
	}
	if err := struc.PackWithOrder(w, header, binary.BigEndian); err != nil {
		return errors.Wrap(err, "failed to pack header")
	}
	_, err = w.Write(data)
	return err
}

// LoadState reads an image written by SaveState into a new detached state.
func LoadState(r io.Reader) (State, error) {
	var header imageHeader
	if err := struc.UnpackWithOrder(r, &header, binary.BigEndian); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if header.Magic != IMAGE_MAGIC {
		return nil, errors.Errorf("bad image magic %q", header.Magic)
	}
	if header.Version != IMAGE_VERSION {
		return nil, errors.Errorf("unsupported image version %d", header.Version)
	}
	id, err := models.ParseArchID(strings.TrimRight(header.Arch, "\x00"))
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(io.LimitReader(r, int64(header.Length)))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != header.Length {
		return nil, errors.Errorf("short image: %d of %d bytes", len(data), header.Length)
	}
	if crc32.ChecksumIEEE(data) != header.Crc32 {
		return nil, errors.New("image checksum mismatch")
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress image")
	}

	c, err := NewCpu(id)
	if err != nil {
		return nil, err
	}
	stream := models.StrucStream{Stream: bytes.NewBuffer(raw), Order: binary.BigEndian}
	var count uint32
	if err := stream.Unpack(&count); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var rec regRecord
		if err := stream.Unpack(&rec); err != nil {
			return nil, errors.Wrap(err, "failed to unpack register")
		}
		reg, err := c.Arch().Register(models.RegID(rec.ID))
		if err != nil {
			return nil, err
		}
		if err := c.RegWriteBig(reg, new(big.Int).SetBytes(rec.Value)); err != nil {
			return nil, err
		}
	}
	if err := stream.Unpack(&count); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var rec pageRecord
		if err := stream.Unpack(&rec); err != nil {
			return nil, errors.Wrap(err, "failed to unpack mapping")
		}
		if err := c.MemMapProt(rec.Addr, uint64(len(rec.Data)), int(rec.Prot)); err != nil {
			return nil, err
		}
		if err := c.MemWrite(rec.Addr, rec.Data); err != nil {
			return nil, err
		}
		if rec.Desc != "" {
			if page := c.Mappings().Find(rec.Addr); page != nil {
				page.Desc = rec.Desc
			}
		}
	}
	return stateOf(id, c)
}
