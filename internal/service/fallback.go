// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"html"
	"strings"
	"time"

	"github.com/olegiv/easysplit/internal/markup"
	"github.com/olegiv/easysplit/internal/model"
)

// sampleNotice closes the body generated for fallback posts without content.
const sampleNotice = "Este é um conteúdo de exemplo. Inicie o servidor CMS para criar posts reais."

// Dataset is the static set of posts served when the content backend is
// unavailable or mock mode is on. It is immutable after construction.
type Dataset struct {
	posts []model.Post
}

// NewDataset builds a dataset from posts, keeping their order. Posts
// without content get a body generated from their excerpt.
func NewDataset(posts []model.Post) *Dataset {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = enrichPost(p)
	}
	return &Dataset{posts: out}
}

// DefaultDataset returns the built-in sample posts.
func DefaultDataset() *Dataset {
	return NewDataset(samplePosts())
}

// Len returns the number of posts.
func (d *Dataset) Len() int {
	return len(d.posts)
}

// Posts returns a copy of every post.
func (d *Dataset) Posts() []model.Post {
	out := make([]model.Post, len(d.posts))
	copy(out, d.posts)
	return out
}

// Page slices the posts matching categoryID and search into a page.
// Zero categoryID and empty search match everything.
func (d *Dataset) Page(page, perPage int, categoryID int64, search string) model.PostList {
	matched := d.filter(categoryID, search)

	start, end := model.PageBounds(len(matched), page, perPage)
	items := make([]model.Post, end-start)
	copy(items, matched[start:end])

	return model.PostList{
		Items: items,
		Pagination: model.Pagination{
			Total:       len(matched),
			TotalPages:  model.TotalPages(len(matched), perPage),
			CurrentPage: page,
		},
	}
}

// BySlug returns the post with the given slug, or nil.
func (d *Dataset) BySlug(slug string) *model.Post {
	for _, p := range d.posts {
		if p.Slug == slug {
			post := p
			return &post
		}
	}
	return nil
}

// ByID returns the post with the given id, or nil.
func (d *Dataset) ByID(id int64) *model.Post {
	for _, p := range d.posts {
		if p.ID == id {
			post := p
			return &post
		}
	}
	return nil
}

// Categories returns the categories embedded in the posts, with the number
// of posts filed under each.
func (d *Dataset) Categories() []model.Category {
	out := []model.Category{}
	for _, t := range d.terms(model.TaxonomyCategory) {
		out = append(out, model.Category{ID: t.ID, Name: t.Name, Slug: t.Slug, PostCount: d.countTerm(t)})
	}
	return out
}

// Tags returns the tags embedded in the posts, with their post counts.
func (d *Dataset) Tags() []model.Tag {
	out := []model.Tag{}
	for _, t := range d.terms(model.TaxonomyTag) {
		out = append(out, model.Tag{ID: t.ID, Name: t.Name, Slug: t.Slug, PostCount: d.countTerm(t)})
	}
	return out
}

func (d *Dataset) filter(categoryID int64, search string) []model.Post {
	search = strings.ToLower(strings.TrimSpace(search))
	if categoryID == 0 && search == "" {
		return d.posts
	}

	var out []model.Post
	for _, p := range d.posts {
		if categoryID != 0 && !p.HasCategory(categoryID) {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesSearch reports whether the lowercased query occurs in the title,
// excerpt or content of p.
func matchesSearch(p model.Post, query string) bool {
	return strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(markup.PlainText(p.Excerpt)), query) ||
		strings.Contains(strings.ToLower(markup.PlainText(p.Content)), query)
}

// terms returns the distinct embedded terms of one taxonomy in first-seen order.
func (d *Dataset) terms(taxonomy string) []model.Term {
	seen := make(map[int64]bool)
	var out []model.Term
	for _, p := range d.posts {
		for _, t := range p.Terms {
			if t.Taxonomy != taxonomy || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}

func (d *Dataset) countTerm(t model.Term) int {
	n := 0
	for _, p := range d.posts {
		ids := p.Categories
		if t.Taxonomy == model.TaxonomyTag {
			ids = p.Tags
		}
		for _, id := range ids {
			if id == t.ID {
				n++
				break
			}
		}
	}
	return n
}

// enrichPost fills in what a fallback post needs to be rendered alone.
func enrichPost(p model.Post) model.Post {
	if strings.TrimSpace(p.Content) == "" {
		p.Content = "<p>" + html.EscapeString(markup.PlainText(p.Excerpt)) + "</p><p>" + sampleNotice + "</p>"
	}
	if p.ModifiedAt.IsZero() {
		p.ModifiedAt = p.CreatedAt
	}
	if p.Categories == nil {
		p.Categories = []int64{}
	}
	if p.Status == "" {
		p.Status = model.PostStatusPublish
	}
	return p
}

func sampleDate(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	termCRO          = model.Term{ID: 1, Name: "CRO", Slug: "cro", Taxonomy: model.TaxonomyCategory}
	termAnalytics    = model.Term{ID: 2, Name: "Analytics", Slug: "analytics", Taxonomy: model.TaxonomyCategory}
	termWordPress    = model.Term{ID: 1, Name: "WordPress", Slug: "wordpress", Taxonomy: model.TaxonomyTag}
	termTesteAB      = model.Term{ID: 2, Name: "Teste A/B", Slug: "teste-ab", Taxonomy: model.TaxonomyTag}
	termGA4          = model.Term{ID: 3, Name: "GA4", Slug: "ga4", Taxonomy: model.TaxonomyTag}
	termLandingPages = model.Term{ID: 4, Name: "Landing Pages", Slug: "landing-pages", Taxonomy: model.TaxonomyTag}
)

// samplePosts are the posts published on the marketing site at launch.
func samplePosts() []model.Post {
	return []model.Post{
		{
			ID:               1,
			Slug:             "como-fazer-teste-ab-wordpress",
			Title:            "Como fazer Teste A/B no WordPress sem gastar uma fortuna",
			Excerpt:          "<p>Descubra estratégias simples para aumentar suas conversões usando ferramentas nativas...</p>",
			Content:          sampleContentAB,
			Status:           model.PostStatusPublish,
			Categories:       []int64{1},
			Tags:             []int64{1, 2},
			AuthorID:         1,
			AuthorName:       "Equipe EasySplit",
			CreatedAt:        sampleDate("2023-10-24T10:00:00"),
			FeaturedImageURL: "https://picsum.photos/800/600?random=1",
			Terms:            []model.Term{termCRO, termWordPress, termTesteAB},
		},
		{
			ID:               2,
			Slug:             "ga4-para-iniciantes",
			Title:            "Google Analytics 4: Configurando eventos de conversão",
			Excerpt:          "<p>O guia definitivo para rastrear vendas e leads no novo GA4 integrado ao seu site.</p>",
			Content:          sampleContentGA4,
			Status:           model.PostStatusPublish,
			Categories:       []int64{2},
			Tags:             []int64{3},
			AuthorID:         2,
			AuthorName:       "Ana Silva",
			CreatedAt:        sampleDate("2023-10-20T10:00:00"),
			FeaturedImageURL: "https://picsum.photos/800/600?random=2",
			Terms:            []model.Term{termAnalytics, termGA4},
		},
		{
			ID:               3,
			Slug:             "cro-landing-pages",
			Title:            "5 Elementos de Landing Pages que matam sua conversão",
			Excerpt:          "<p>Se sua página não converte, verifique se você não está cometendo estes erros clássicos.</p>",
			Content:          sampleContentLanding,
			Status:           model.PostStatusPublish,
			Categories:       []int64{1},
			Tags:             []int64{1, 4},
			AuthorID:         3,
			AuthorName:       "Carlos Dev",
			CreatedAt:        sampleDate("2023-10-15T10:00:00"),
			FeaturedImageURL: "https://picsum.photos/800/600?random=3",
			Terms:            []model.Term{termCRO, termWordPress, termLandingPages},
		},
	}
}

const sampleContentAB = `<p>Os testes A/B são fundamentais para qualquer estratégia de otimização de conversão. No WordPress, existem diversas formas de implementá-los, mas nem todas são acessíveis ou fáceis de usar.</p>

<h2>Por que fazer Testes A/B?</h2>
<p>Testes A/B permitem que você compare duas versões de uma página para descobrir qual converte melhor. Ao invés de adivinhar o que funciona, você deixa os dados guiarem suas decisões.</p>

<h2>O Problema das Ferramentas Tradicionais</h2>
<p>Ferramentas como Optimizely e VWO são poderosas, mas cobram mensalidades em dólar que podem ser proibitivas para negócios brasileiros. Além disso, muitas exigem conhecimento técnico avançado.</p>

<h2>A Solução: EasySplit</h2>
<p>O EasySplit foi criado pensando no ecossistema WordPress brasileiro. Com ele, você pode:</p>
<ul>
  <li>Criar testes A/B sem código</li>
  <li>Manter a mesma URL (sem prejudicar SEO)</li>
  <li>Integrar com GA4 e Clarity</li>
  <li>Pagar em reais, uma única vez</li>
</ul>

<h2>Conclusão</h2>
<p>Não deixe que o custo das ferramentas impeça você de otimizar suas conversões. Com as opções certas, qualquer site WordPress pode se beneficiar de testes A/B profissionais.</p>`

const sampleContentGA4 = `<p>O Google Analytics 4 representa uma mudança significativa na forma como rastreamos e analisamos dados de websites. Neste guia, vamos explorar como configurar eventos de conversão corretamente.</p>

<h2>Entendendo o GA4</h2>
<p>Diferente do Universal Analytics, o GA4 é baseado em eventos. Tudo é um evento: pageviews, cliques, scrolls, e conversões.</p>

<h2>Configurando Eventos</h2>
<p>Para configurar um evento de conversão no GA4:</p>
<ol>
  <li>Acesse Admin &gt; Eventos</li>
  <li>Crie um novo evento ou marque um existente como conversão</li>
  <li>Configure os parâmetros necessários</li>
</ol>

<h2>Integrando com Testes A/B</h2>
<p>Ao usar o EasySplit, os eventos são enviados automaticamente para o GA4, permitindo que você analise qual variante gera mais conversões.</p>`

const sampleContentLanding = `<p>Landing pages são cruciais para qualquer campanha de marketing digital. No entanto, muitos profissionais cometem erros que podem destruir suas taxas de conversão.</p>

<h2>1. Headlines Fracas</h2>
<p>Sua headline é a primeira coisa que os visitantes veem. Se não for clara e impactante, eles vão embora.</p>

<h2>2. Formulários Longos Demais</h2>
<p>Cada campo adicional no seu formulário reduz a taxa de conversão. Peça apenas o essencial.</p>

<h2>3. Falta de Prova Social</h2>
<p>Depoimentos, logos de clientes e números de usuários aumentam a confiança.</p>

<h2>4. CTAs Genéricos</h2>
<p>"Clique aqui" ou "Enviar" são fracos. Use CTAs que mostrem o valor: "Começar grátis" ou "Aumentar minhas vendas".</p>

<h2>5. Página Lenta</h2>
<p>Cada segundo de delay reduz conversões em até 7%. Otimize suas imagens e scripts.</p>

<h2>Como Descobrir Seus Problemas</h2>
<p>Use testes A/B para validar mudanças. O EasySplit permite testar diferentes versões da sua landing page sem complicação.</p>`
