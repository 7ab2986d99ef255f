package service

import (
	"strconv"

	"github.com/d60-Lab/yatube/internal/model"
)

// Page 一页帖子及分页元数据
type Page struct {
	Items       []*model.Post `json:"object_list"`
	Number      int           `json:"number"`
	NumPages    int           `json:"num_pages"`
	Count       int64         `json:"count"`
	PerPage     int           `json:"per_page"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
	StartIndex  int64         `json:"start_index"`
	EndIndex    int64         `json:"end_index"`
}

// Paginator resolves a raw page parameter against a known total.
type Paginator struct {
	PerPage int
}

func NewPaginator(perPage int) Paginator {
	if perPage < 1 {
		perPage = 10
	}
	return Paginator{PerPage: perPage}
}

// NumPages is never below one: an empty collection still has an empty first page.
func (p Paginator) NumPages(count int64) int {
	if count <= 0 {
		return 1
	}
	return int((count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Resolve 非整数或缺省 -> 第 1 页；越界 -> 最后一页
func (p Paginator) Resolve(raw string, count int64) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	last := p.NumPages(count)
	if n < 1 || n > last {
		return last
	}
	return n
}

// Offset returns the row offset of page number n.
func (p Paginator) Offset(n int) int { return (n - 1) * p.PerPage }

func (p Paginator) Page(items []*model.Post, number int, count int64) *Page {
	numPages := p.NumPages(count)
	pg := &Page{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     p.PerPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
	if items == nil {
		pg.Items = []*model.Post{}
	}
	if count > 0 {
		pg.StartIndex = int64(p.PerPage*(number-1)) + 1
	}
	if number == numPages {
		pg.EndIndex = count
	} else {
		pg.EndIndex = int64(number * p.PerPage)
	}
	return pg
}
