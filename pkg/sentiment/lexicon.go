package sentiment

// lexicon carries per-word polarity and subjectivity, following the usual
// pattern-lexicon conventions (polarity in [-1,1], subjectivity in [0,1]).
var lexicon = map[string]wordScore{
	// Strong positive
	"amazing":    {0.9, 0.9},
	"awesome":    {0.9, 0.9},
	"excellent":  {0.9, 0.8},
	"fantastic":  {0.9, 0.9},
	"wonderful":  {0.9, 0.9},
	"perfect":    {0.9, 0.8},
	"brilliant":  {0.9, 0.9},
	"incredible": {0.8, 0.9},
	"outstanding": {0.9, 0.8},
	"superb":     {0.9, 0.8},
	"delightful": {0.8, 0.9},
	"love":       {0.7, 0.7},
	"loved":      {0.7, 0.7},
	"best":       {0.8, 0.6},

	// Mild positive
	"good":      {0.5, 0.6},
	"great":     {0.7, 0.7},
	"nice":      {0.5, 0.7},
	"happy":     {0.6, 0.8},
	"glad":      {0.5, 0.7},
	"pleased":   {0.5, 0.7},
	"enjoy":     {0.5, 0.6},
	"enjoyed":   {0.5, 0.6},
	"like":      {0.3, 0.5},
	"liked":     {0.3, 0.5},
	"fine":      {0.3, 0.5},
	"better":    {0.4, 0.5},
	"helpful":   {0.5, 0.5},
	"thanks":    {0.4, 0.5},
	"thank":     {0.4, 0.5},
	"beautiful": {0.7, 0.8},
	"fun":       {0.5, 0.7},
	"easy":      {0.4, 0.6},
	"fast":      {0.3, 0.4},
	"smooth":    {0.4, 0.5},
	"works":     {0.3, 0.3},
	"working":   {0.3, 0.3},
	"correct":   {0.4, 0.3},
	"right":     {0.3, 0.4},
	"clear":     {0.3, 0.4},
	"yes":       {0.2, 0.3},

	// Strong negative
	"terrible":   {-0.9, 0.9},
	"horrible":   {-0.9, 0.9},
	"awful":      {-0.9, 0.9},
	"disgusting": {-0.9, 0.9},
	"hate":       {-0.8, 0.8},
	"hated":      {-0.8, 0.8},
	"worst":      {-0.9, 0.7},
	"useless":    {-0.8, 0.7},
	"garbage":    {-0.8, 0.8},
	"dreadful":   {-0.8, 0.9},
	"unacceptable": {-0.8, 0.7},

	// Mild negative
	"bad":          {-0.6, 0.7},
	"poor":         {-0.5, 0.6},
	"sad":          {-0.5, 0.8},
	"angry":        {-0.6, 0.8},
	"upset":        {-0.5, 0.7},
	"annoyed":      {-0.5, 0.7},
	"annoying":     {-0.5, 0.7},
	"frustrating":  {-0.6, 0.7},
	"frustrated":   {-0.6, 0.7},
	"disappointed": {-0.6, 0.7},
	"disappointing": {-0.6, 0.7},
	"broken":       {-0.5, 0.4},
	"fails":        {-0.5, 0.4},
	"failed":       {-0.5, 0.4},
	"failure":      {-0.5, 0.5},
	"wrong":        {-0.5, 0.5},
	"slow":         {-0.3, 0.4},
	"hard":         {-0.3, 0.5},
	"difficult":    {-0.4, 0.5},
	"problem":      {-0.3, 0.3},
	"problems":     {-0.3, 0.3},
	"error":        {-0.3, 0.2},
	"errors":       {-0.3, 0.2},
	"worse":        {-0.4, 0.5},
	"no":           {-0.2, 0.3},
	"unhappy":      {-0.6, 0.8},
	"boring":       {-0.5, 0.8},
	"confusing":    {-0.4, 0.6},
	"ugly":         {-0.6, 0.8},
}
