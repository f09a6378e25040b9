package mocks

//go:generate mockgen -source=../pkg/pagination/source.go -destination=pagination_mocks.go -package=mocks
