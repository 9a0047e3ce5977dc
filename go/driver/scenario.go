package driver

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	snapcorn "github.com/snapcorn/snapcorn/go"
	"github.com/snapcorn/snapcorn/go/models"
)

type Region struct {
	Addr uint64 `yaml:"addr"`
	Size uint   `yaml:"size"`
}

type Marks struct {
	Registers []string `yaml:"registers"`
	Memory    []Region `yaml:"memory"`
}

// Annotation symbolizes a register or region right before the instruction at Addr runs.
type Annotation struct {
	Addr     uint64  `yaml:"addr"`
	Register string  `yaml:"register,omitempty"`
	Memory   *Region `yaml:"memory,omitempty"`
}

// Scenario is a program file: an architecture, the initial machine state and a listing.
//
//	arch: x86_64
//	registers: {rbx: 1}
//	memory: {0x1000: "41424344"}
//	symbolic: {registers: [rax, rbx]}
//	program:
//	  - {addr: 0x0, asm: "cmp rbx, 1"}
type Scenario struct {
	Arch        string            `yaml:"arch"`
	Entry       *uint64           `yaml:"entry,omitempty"`
	Modes       []string          `yaml:"modes"`
	Registers   map[string]uint64 `yaml:"registers"`
	Memory      map[uint64]string `yaml:"memory"`
	Symbolic    Marks             `yaml:"symbolic"`
	Tainted     Marks             `yaml:"tainted"`
	SymbolizeAt []Annotation      `yaml:"symbolize_at"`
	Program     []Line            `yaml:"program"`
}

func ParseScenario(data []byte) (*Scenario, error) {
	s := &Scenario{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parsing scenario")
	}
	if s.Arch == "" {
		return nil, errors.New("scenario has no arch")
	}
	if len(s.Program) == 0 {
		return nil, errors.New("scenario has no program")
	}
	return s, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario")
	}
	s, err := ParseScenario(data)
	return s, errors.Wrap(err, path)
}

// Setup configures m from the scenario and assembles its program.
func (s *Scenario) Setup(m *snapcorn.Machine) (*Program, error) {
	id, err := models.ParseArchID(s.Arch)
	if err != nil {
		return nil, err
	}
	if err := m.SetArchitecture(id); err != nil {
		return nil, err
	}
	for _, name := range s.Modes {
		mode, err := models.ParseMode(name)
		if err != nil {
			return nil, err
		}
		m.EnableMode(mode, true)
	}
	for _, name := range sortedKeys(s.Registers) {
		reg, err := m.RegisterByName(name)
		if err != nil {
			return nil, err
		}
		if err := m.SetConcreteRegisterValue(reg, s.Registers[name]); err != nil {
			return nil, errors.Wrapf(err, "setting %s", name)
		}
	}
	addrs := make([]uint64, 0, len(s.Memory))
	for addr := range s.Memory {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		data, err := hex.DecodeString(strings.ReplaceAll(s.Memory[addr], " ", ""))
		if err != nil {
			return nil, errors.Wrapf(err, "memory at %#x", addr)
		}
		if err := m.SetConcreteMemoryArea(addr, data); err != nil {
			return nil, err
		}
	}
	for _, name := range s.Symbolic.Registers {
		if err := symbolizeRegister(m, name); err != nil {
			return nil, err
		}
	}
	for _, r := range s.Symbolic.Memory {
		if err := symbolizeMemory(m, r); err != nil {
			return nil, err
		}
	}
	for _, name := range s.Tainted.Registers {
		reg, err := m.RegisterByName(name)
		if err != nil {
			return nil, err
		}
		m.TaintRegister(reg)
	}
	for _, r := range s.Tainted.Memory {
		mem, err := models.NewMemoryAccess(r.Addr, r.Size)
		if err != nil {
			return nil, err
		}
		m.TaintMemory(mem)
	}
	return NewProgram(m.Arch(), s.Program)
}

// EntryPoint is the configured entry, or the lowest listed address.
func (s *Scenario) EntryPoint(p *Program) uint64 {
	if s.Entry != nil {
		return *s.Entry
	}
	if l := p.Listing(); len(l) > 0 {
		return l[0].Address
	}
	return 0
}

// Before returns a hook applying the scenario's annotations on m, for Explorer.Before.
func (s *Scenario) Before(m *snapcorn.Machine) func(*Instruction) error {
	byAddr := make(map[uint64][]Annotation)
	for _, a := range s.SymbolizeAt {
		byAddr[a.Addr] = append(byAddr[a.Addr], a)
	}
	return func(ins *Instruction) error {
		for _, a := range byAddr[ins.Address] {
			if a.Register != "" {
				if err := symbolizeRegister(m, a.Register); err != nil {
					return err
				}
			}
			if a.Memory != nil {
				if err := symbolizeMemory(m, *a.Memory); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func symbolizeRegister(m *snapcorn.Machine, name string) error {
	reg, err := m.RegisterByName(name)
	if err != nil {
		return err
	}
	_, err = m.ConvertRegisterToSymbolicVariable(reg, name)
	return err
}

func symbolizeMemory(m *snapcorn.Machine, r Region) error {
	mem, err := models.NewMemoryAccess(r.Addr, r.Size)
	if err != nil {
		return err
	}
	_, err = m.ConvertMemoryToSymbolicVariable(mem, "")
	return err
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
