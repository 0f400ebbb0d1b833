package providers

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/capability"
)

func TestCatalog(t *testing.T) {
	Convey("Catalog 返回的工具都符合命名约定", t, func() {
		tools := Catalog()
		So(len(tools), ShouldBeGreaterThanOrEqualTo, 6)

		seen := map[string]bool{}
		for _, tool := range tools {
			capType, capID, ok := capability.ParseToolName(tool.Name())
			So(ok, ShouldBeTrue)
			So(capType, ShouldNotBeEmpty)
			So(capID, ShouldNotBeEmpty)
			So(seen[tool.Name()], ShouldBeFalse)
			seen[tool.Name()] = true
		}
	})

	Convey("注册后每个类型都有激活候选", t, func() {
		registry := capability.NewRegistry()
		registry.RegisterAll(Catalog())

		for _, capType := range capability.Types() {
			So(len(registry.IDs(capType)), ShouldBeGreaterThan, 0)
		}
	})

	Convey("每个类型至多一个 is_default 标记", t, func() {
		registry := capability.NewRegistry()
		registry.RegisterAll(Catalog())

		for _, capType := range capability.Types() {
			defaults := 0
			for _, info := range registry.List(capType) {
				if info.Meta.IsDefault {
					defaults++
				}
			}
			So(defaults, ShouldBeLessThanOrEqualTo, 1)
		}
	})
}
