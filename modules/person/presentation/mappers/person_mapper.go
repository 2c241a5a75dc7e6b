package mappers

import (
	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/presentation/viewmodels"
)

func PersonToViewModel(p person.Person) *viewmodels.Person {
	vm := &viewmodels.Person{
		ID:        p.ID(),
		Name:      p.Name(),
		FirstName: p.FirstName(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
	if b := p.Birthday(); b != nil {
		s := b.String()
		vm.Birthday = &s
	}
	if sex := p.Sex(); sex != nil {
		s := string(*sex)
		vm.Sex = &s
	}
	return vm
}
