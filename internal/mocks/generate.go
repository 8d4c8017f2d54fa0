// Package mocks provides gomock implementations of the portal ports.
//
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
// Hand-written doubles with state (provider, token store, navigator) live in internal/mocks/auth.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	faculty := mocks.NewMockFacultyDirectory(ctrl)
//	faculty.EXPECT().FindBySubject(gomock.Any(), "u1").Return(nil, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go github.com/PoojaS1511/Updated-CMS-sub000/internal/ports FacultyDirectory,StudentDirectory

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=admin_rule_mock.go github.com/PoojaS1511/Updated-CMS-sub000/internal/ports AdminRule

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/PoojaS1511/Updated-CMS-sub000/internal/ports TokenStore
