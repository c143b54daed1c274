package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Publisher --dir ../domain/feed --output domain/feed --outpkg feedmock --filename publisher_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Catalog --dir ../domain/competition --output domain/competition --outpkg competitionmock --filename catalog_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/snapshot --output domain/snapshot --outpkg snapshotmock --filename repository_mock.go
