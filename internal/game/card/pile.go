package card

import (
	"math/rand/v2"
	"slices"
)

// Pile 有序牌堆，末尾为牌顶
type Pile []*Card

// Len 剩余张数
func (p Pile) Len() int {
	return len(p)
}

// Draw 从牌顶取一张牌，空牌堆返回 nil
func (p *Pile) Draw() *Card {
	n := len(*p)
	if n == 0 {
		return nil
	}
	c := (*p)[n-1]
	(*p)[n-1] = nil
	*p = (*p)[:n-1]
	return c
}

// Push 放入牌堆顶部
func (p *Pile) Push(cards ...*Card) {
	*p = append(*p, cards...)
}

// Index 查找指定 ID 的牌，不存在返回 -1
func (p Pile) Index(id string) int {
	return slices.IndexFunc(p, func(c *Card) bool { return c.ID == id })
}

// Find 查找指定 ID 的牌
func (p Pile) Find(id string) *Card {
	if i := p.Index(id); i >= 0 {
		return p[i]
	}
	return nil
}

// FindEffect 查找第一张具有指定效果的牌
func (p Pile) FindEffect(effect Effect) *Card {
	for _, c := range p {
		if c.Effect == effect {
			return c
		}
	}
	return nil
}

// Remove 移除并返回指定 ID 的牌
func (p *Pile) Remove(id string) *Card {
	i := p.Index(id)
	if i < 0 {
		return nil
	}
	c := (*p)[i]
	*p = slices.Delete(*p, i, i+1)
	return c
}

// TakeAll 清空牌堆并返回所有牌
func (p *Pile) TakeAll() []*Card {
	cards := *p
	*p = Pile{}
	return cards
}

// Shuffle 均匀随机洗牌 (Fisher-Yates)
func (p Pile) Shuffle(r *rand.Rand) {
	swap := func(i, j int) { p[i], p[j] = p[j], p[i] }
	if r == nil {
		rand.Shuffle(len(p), swap)
		return
	}
	r.Shuffle(len(p), swap)
}
