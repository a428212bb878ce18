package main

// MockPersister keeps saved records in memory and can be told to fail.
type MockPersister struct {
	Saved     []Record
	Saves     int
	SaveError error
	LoadError error
}

func (p *MockPersister) Load() ([]Record, error) {
	if p.LoadError != nil {
		return nil, p.LoadError
	}
	if p.Saved == nil {
		return nil, nil
	}
	out := make([]Record, len(p.Saved))
	copy(out, p.Saved)
	return out, nil
}

func (p *MockPersister) Save(records []Record) error {
	if p.SaveError != nil {
		return p.SaveError
	}
	p.Saves++
	p.Saved = make([]Record, len(records))
	copy(p.Saved, records)
	return nil
}

func (p *MockPersister) Location() string {
	return "memory"
}
