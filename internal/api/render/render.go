// Package render 把模板名和上下文交给具体的输出方式
package render

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Renderer 渲染一个具名模板
type Renderer interface {
	HTML(c *gin.Context, code int, name string, data gin.H)
}

// JSON 不渲染模板，直接输出模板名与上下文；测试和无模板部署使用
type JSON struct{}

func (JSON) HTML(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(code, gin.H{"template": name, "context": data})
}

// Templates 使用 gin 引擎上加载的 html/template 集合
type Templates struct{}

func (Templates) HTML(c *gin.Context, code int, name string, data gin.H) {
	c.HTML(code, name, data)
}

// LoadTemplates 解析 dir 下所有 .html，模板名为相对路径，如 posts/index.html
func LoadTemplates(engine *gin.Engine, dir string) error {
	root := template.New("").Funcs(funcs)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := root.New(filepath.ToSlash(rel)).Parse(string(src)); err != nil {
			return fmt.Errorf("parse template %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load templates from %s: %w", dir, err)
	}
	engine.SetHTMLTemplate(root)
	return nil
}

var funcs = template.FuncMap{
	// truncatechars 对应列表页的摘要
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	},
	"add": func(a, b int) int { return a + b },
}
