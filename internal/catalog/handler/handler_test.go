package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"provenance/internal/catalog/handler/mocks"
	"provenance/internal/catalog/models"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
	actorID id.AccountID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = mocks.NewMockService(gomock.NewController(s.T()))
	s.actorID = id.NewAccountID()
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)
	s.router = r
}

func (s *HandlerSuite) TestCreateBrandTrimsName() {
	brand, err := models.NewBrand(id.NewBrandID(), "Apple", time.Now())
	s.Require().NoError(err)
	s.service.EXPECT().CreateBrand(gomock.Any(), s.actorID, "Apple").Return(brand, nil)

	req := testutil.WithAccountID(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/brands",
		map[string]string{"name": "  Apple "}), s.actorID)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "name", "Apple")
}

func (s *HandlerSuite) TestDeleteBrand() {
	brandID := id.NewBrandID()

	s.Run("deleted", func() {
		s.service.EXPECT().DeleteBrand(gomock.Any(), s.actorID, brandID).Return(nil)
		req := testutil.WithAccountID(testutil.NewRequest(s.T(), http.MethodDelete, "/admin/brands/"+brandID.String()), s.actorID)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusNoContent)
	})

	s.Run("in use", func() {
		s.service.EXPECT().DeleteBrand(gomock.Any(), s.actorID, brandID).
			Return(dErrors.New(dErrors.CodeConflict, "brand is referenced by registered assets"))
		req := testutil.WithAccountID(testutil.NewRequest(s.T(), http.MethodDelete, "/admin/brands/"+brandID.String()), s.actorID)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusConflict, "conflict")
	})

	s.Run("bad id", func() {
		req := testutil.WithAccountID(testutil.NewRequest(s.T(), http.MethodDelete, "/admin/brands/nope"), s.actorID)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestListCategories() {
	c1, _ := models.NewCategory(id.NewCategoryID(), "Phones", time.Now())
	c2, _ := models.NewCategory(id.NewCategoryID(), "Laptops", time.Now())
	s.service.EXPECT().ListCategories(gomock.Any()).Return([]*models.Category{c1, c2}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/categories"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[[]CatalogEntryResponse](s.T(), rr)
	s.Len(*resp, 2)
}

func (s *HandlerSuite) TestInternalErrorHidesMessage() {
	s.service.EXPECT().ListBrands(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInternal, "connection reset"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/brands"))
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	s.NotContains(rr.Body.String(), "connection reset")
}
