package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
)

// Argument placeholders substituted when a descriptor is invoked.
const (
	RootPlaceholder  = "{{root}}"
	ScopePlaceholder = "{{scope}}"
)

// Registration errors.
var (
	ErrDescriptorNameRequired     = errors.New("tool descriptor requires a name")
	ErrDescriptorCommandRequired  = errors.New("tool descriptor requires a command")
	ErrDescriptorCategoryRequired = errors.New("tool descriptor requires a category")
	ErrDescriptorParserRequired   = errors.New("tool descriptor requires an output parser reference")
	ErrRegistryFrozen             = errors.New("tool registry is frozen")
)

const duplicateDescriptorTemplateConstant = "tool %s already registered"

// ToolDescriptor describes one external analyzer: its applicability, its
// invocation template, and the parser that understands its output. Lower
// PriorityRank means tried earlier; ranks encode the preference for tools
// with richer structured output.
type ToolDescriptor struct {
	Name         string
	Category     model.CheckCategory
	Languages    []profile.Language
	Command      string
	Arguments    []string
	Parser       string
	PriorityRank int
}

// AppliesTo reports whether the descriptor serves any of the given
// languages. A descriptor without languages applies to every project.
func (descriptor ToolDescriptor) AppliesTo(languages []profile.Language) bool {
	if len(descriptor.Languages) == 0 {
		return true
	}
	for _, descriptorLanguage := range descriptor.Languages {
		for _, projectLanguage := range languages {
			if descriptorLanguage == projectLanguage {
				return true
			}
		}
	}
	return false
}

// RenderArguments substitutes the root and scope placeholders into the
// descriptor's argument template.
func (descriptor ToolDescriptor) RenderArguments(rootPath string, scopePath string) []string {
	target := rootPath
	if len(scopePath) > 0 {
		target = scopePath
	}
	rendered := make([]string, 0, len(descriptor.Arguments))
	for _, argument := range descriptor.Arguments {
		argument = strings.ReplaceAll(argument, RootPlaceholder, rootPath)
		argument = strings.ReplaceAll(argument, ScopePlaceholder, target)
		rendered = append(rendered, argument)
	}
	return rendered
}

type registeredDescriptor struct {
	descriptor        ToolDescriptor
	registrationIndex int
}

// Registry is the append-only tool catalog. Register at process start,
// Freeze before running, then Candidates is safe for concurrent use.
type Registry struct {
	descriptors []registeredDescriptor
	byName      map[string]int
	frozen      bool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]int{}}
}

// Register validates and appends a descriptor. Registration fails after the
// registry has been frozen or when the name is blank or already taken.
func (toolRegistry *Registry) Register(descriptor ToolDescriptor) error {
	if toolRegistry.frozen {
		return ErrRegistryFrozen
	}

	descriptor.Name = strings.TrimSpace(descriptor.Name)
	if len(descriptor.Name) == 0 {
		return ErrDescriptorNameRequired
	}
	if len(strings.TrimSpace(descriptor.Command)) == 0 {
		return ErrDescriptorCommandRequired
	}
	if len(strings.TrimSpace(string(descriptor.Category))) == 0 {
		return ErrDescriptorCategoryRequired
	}
	if len(strings.TrimSpace(descriptor.Parser)) == 0 {
		return ErrDescriptorParserRequired
	}
	if _, exists := toolRegistry.byName[descriptor.Name]; exists {
		return fmt.Errorf(duplicateDescriptorTemplateConstant, descriptor.Name)
	}

	toolRegistry.byName[descriptor.Name] = len(toolRegistry.descriptors)
	toolRegistry.descriptors = append(toolRegistry.descriptors, registeredDescriptor{
		descriptor:        descriptor,
		registrationIndex: len(toolRegistry.descriptors),
	})
	return nil
}

// OverridePriority adjusts the priority rank of an already registered tool.
// It is part of catalog loading and therefore refused once frozen.
func (toolRegistry *Registry) OverridePriority(toolName string, priorityRank int) error {
	if toolRegistry.frozen {
		return ErrRegistryFrozen
	}
	index, exists := toolRegistry.byName[strings.TrimSpace(toolName)]
	if !exists {
		return fmt.Errorf("tool %s is not registered", toolName)
	}
	toolRegistry.descriptors[index].descriptor.PriorityRank = priorityRank
	return nil
}

// Freeze marks the registry read-only for the remainder of the process.
func (toolRegistry *Registry) Freeze() {
	toolRegistry.frozen = true
}

// Candidates returns the descriptors serving the category and any of the
// profile languages, ordered by priority rank ascending with registration
// order breaking ties.
func (toolRegistry *Registry) Candidates(category model.CheckCategory, languages []profile.Language) []ToolDescriptor {
	var matching []registeredDescriptor
	for _, registered := range toolRegistry.descriptors {
		if registered.descriptor.Category != category {
			continue
		}
		if !registered.descriptor.AppliesTo(languages) {
			continue
		}
		matching = append(matching, registered)
	}

	sort.SliceStable(matching, func(left int, right int) bool {
		if matching[left].descriptor.PriorityRank != matching[right].descriptor.PriorityRank {
			return matching[left].descriptor.PriorityRank < matching[right].descriptor.PriorityRank
		}
		return matching[left].registrationIndex < matching[right].registrationIndex
	})

	candidates := make([]ToolDescriptor, 0, len(matching))
	for _, registered := range matching {
		candidates = append(candidates, registered.descriptor)
	}
	return candidates
}

// Descriptors returns every registered descriptor in registration order.
func (toolRegistry *Registry) Descriptors() []ToolDescriptor {
	descriptors := make([]ToolDescriptor, 0, len(toolRegistry.descriptors))
	for _, registered := range toolRegistry.descriptors {
		descriptors = append(descriptors, registered.descriptor)
	}
	return descriptors
}
