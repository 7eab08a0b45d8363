// Package editor builds removal plans and executes them through the
// external exiftool binary.
package editor

import (
	"github.com/WerlingM/privacy-exif-cleaner/policy"
	"github.com/WerlingM/privacy-exif-cleaner/tags"
)

// Op is the kind of one removal instruction.
type Op int

const (
	// OpClearGroup clears every field in a named tag group.
	OpClearGroup Op = iota
	// OpClearField clears one named field.
	OpClearField
	// OpClearAll clears every field in the file.
	OpClearAll
	// OpRestore copies the named fields back from the pre-clear snapshot.
	// Only valid after OpClearAll.
	OpRestore
)

// Instruction is one step of a removal plan.
type Instruction struct {
	Op     Op
	Group  string
	Field  tags.ID
	Fields []tags.ID
}

// Plan is the ordered instruction sequence for one privacy level. It is
// immutable once built; the same level always yields the same plan.
type Plan struct {
	Level        policy.Level
	Instructions []Instruction
}

// BuildPlan derives the removal plan for a privacy level. Blacklist levels
// emit group and field clears; paranoid emits a clear-all followed by a
// whitelist restore, in that order.
func BuildPlan(level policy.Level) Plan {
	plan := Plan{Level: level}
	switch level {
	case policy.Minimal:
		plan.Instructions = append(plan.Instructions, Instruction{Op: OpClearGroup, Group: "gps"})
	case policy.Standard:
		plan.Instructions = append(plan.Instructions, Instruction{Op: OpClearGroup, Group: "gps"})
		plan.Instructions = append(plan.Instructions, fieldClears(tags.DeviceIdentifier)...)
		plan.Instructions = append(plan.Instructions, fieldClears(tags.PersonalInfo)...)
	case policy.Strict:
		plan.Instructions = append(plan.Instructions, Instruction{Op: OpClearGroup, Group: "gps"})
		plan.Instructions = append(plan.Instructions, fieldClears(tags.DeviceIdentifier)...)
		plan.Instructions = append(plan.Instructions, fieldClears(tags.PersonalInfo)...)
		plan.Instructions = append(plan.Instructions, fieldClears(tags.Temporal)...)
		plan.Instructions = append(plan.Instructions, fieldClears(tags.Software)...)
		plan.Instructions = append(plan.Instructions, fieldClears(tags.Metadata)...)
		// Auxiliary metadata blocks are not enumerated field by field.
		plan.Instructions = append(plan.Instructions,
			Instruction{Op: OpClearGroup, Group: "XMP"},
			Instruction{Op: OpClearGroup, Group: "IPTC"},
		)
	case policy.Paranoid:
		plan.Instructions = append(plan.Instructions,
			Instruction{Op: OpClearAll},
			Instruction{Op: OpRestore, Fields: tags.Essential()},
		)
	}
	return plan
}

func fieldClears(category tags.Category) []Instruction {
	ids := tags.ByCategory(category)
	instructions := make([]Instruction, 0, len(ids))
	for _, id := range ids {
		instructions = append(instructions, Instruction{Op: OpClearField, Field: id})
	}
	return instructions
}

// Args renders the plan as exiftool arguments, preserving instruction
// order.
func (p Plan) Args() []string {
	var args []string
	for _, instruction := range p.Instructions {
		switch instruction.Op {
		case OpClearGroup:
			args = append(args, "-"+instruction.Group+":all=")
		case OpClearField:
			args = append(args, "-"+string(instruction.Field)+"=")
		case OpClearAll:
			args = append(args, "-all=")
		case OpRestore:
			args = append(args, "-TagsFromFile", "@")
			for _, field := range instruction.Fields {
				args = append(args, "-"+string(field))
			}
		}
	}
	return args
}
