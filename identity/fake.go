package identity

import "context"

// FakeDirectory is an in-memory Directory for tests.
type FakeDirectory struct {
	Phones map[string]string
	Err    error
}

func (f *FakeDirectory) PhoneByUser(_ context.Context, userID string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	phone, ok := f.Phones[userID]
	if !ok || phone == "" {
		return "", ErrNoPhone
	}
	return phone, nil
}
